package grpc

import (
	"context"
	_ "embed"
	"fmt"
	"maps"
	"slices"

	"github.com/bufbuild/protocompile"
	"github.com/bufbuild/protocompile/linker"
	"go.uber.org/zap"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// TrainingProtoEmbedded is the daemon training proto, compiled alongside
// every service's own sources so training RPCs resolve on any connection.
//
//go:embed training.proto
var TrainingProtoEmbedded string

// FindMethod locates a method by its simple name (as declared in the .proto)
// across every service in the compiled files. The first match wins; daemon
// protos do not reuse method names across services.
func FindMethod(files linker.Files, methodName string) (protoreflect.FileDescriptor, protoreflect.MethodDescriptor, error) {
	name := protoreflect.Name(methodName)
	for _, file := range files {
		services := file.Services()
		for i := 0; i < services.Len(); i++ {
			if method := services.Get(i).Methods().ByName(name); method != nil {
				return file, method, nil
			}
		}
	}
	return nil, nil, fmt.Errorf("method %s not found in provided proto files", methodName)
}

// compileProtoFiles compiles the given sources (filename → content) with
// protocompile, with standard imports available and the training proto added
// to the set. The caller's map is left untouched.
func compileProtoFiles(protoFiles map[string]string) (linker.Files, error) {
	sources := maps.Clone(protoFiles)
	if sources == nil {
		sources = make(map[string]string, 1)
	}
	sources["training.proto"] = TrainingProtoEmbedded

	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(&protocompile.SourceResolver{
			Accessor: protocompile.SourceAccessorFromMap(sources),
		}),
		SourceInfoMode: protocompile.SourceInfoStandard,
	}
	fds, err := compiler.Compile(context.Background(), slices.Collect(maps.Keys(sources))...)
	if err != nil || fds == nil {
		zap.L().Error("failed to compile proto files", zap.Error(err))
		return nil, fmt.Errorf("failed to compile proto files: %v", err)
	}
	return fds, nil
}
