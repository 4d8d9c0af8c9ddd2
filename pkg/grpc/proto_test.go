package grpc

import (
	"testing"
)

func TestCompileProtoFilesAndFindMethod(t *testing.T) {
	const protoSrc = `
		syntax = "proto3";
		package demo;
		service Greeter {
			rpc SayHello(HelloRequest) returns (HelloReply) {}
		}
		message HelloRequest { string name = 1; }
		message HelloReply { string message = 1; }
	`

	files := map[string]string{"demo.proto": protoSrc}
	fds, err := compileProtoFiles(files)
	if err != nil {
		t.Fatalf("compileProtoFiles returned error: %v", err)
	}
	if len(fds) == 0 {
		t.Fatal("expected non-empty descriptor set")
	}
	if _, ok := files["training.proto"]; ok {
		t.Fatal("caller's proto map was mutated")
	}

	fd, method, err := FindMethod(fds, "SayHello")
	if err != nil {
		t.Fatalf("FindMethod returned error: %v", err)
	}
	if string(fd.Package()) != "demo" {
		t.Fatalf("unexpected package: %s", fd.Package())
	}
	if string(method.Parent().Name()) != "Greeter" {
		t.Fatalf("unexpected service name: %s", method.Parent().Name())
	}
	if got := methodPath(fd, method); got != "/demo.Greeter/SayHello" {
		t.Fatalf("unexpected method path: %s", got)
	}
}

func TestCompileProtoFilesInjectsTrainingProto(t *testing.T) {
	fds, err := compileProtoFiles(nil)
	if err != nil {
		t.Fatalf("compileProtoFiles returned error: %v", err)
	}

	// training RPCs must resolve even when the service ships no protos of
	// its own
	if _, _, err := FindMethod(fds, "train_model"); err != nil {
		t.Fatalf("training method not resolvable: %v", err)
	}
}

func TestFindMethod_NotFound(t *testing.T) {
	files := map[string]string{"foo.proto": `
		syntax = "proto3";
		package foo;
		service S { rpc Ping(Req) returns (Resp) {} }
		message Req {}
		message Resp {}
	`}
	fds, err := compileProtoFiles(files)
	if err != nil {
		t.Fatalf("compileProtoFiles returned error: %v", err)
	}

	if _, _, err := FindMethod(fds, "Unknown"); err == nil {
		t.Fatal("expected error for missing method")
	}
}

func TestCompileProtoFiles_InvalidSource(t *testing.T) {
	files := map[string]string{"bad.proto": "syntax = \"proto2\"; message X {"}
	if _, err := compileProtoFiles(files); err == nil {
		t.Fatal("expected compilation error for invalid proto")
	}
}
