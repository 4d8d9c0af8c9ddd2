// Package training manages custom models on services whose daemons support
// model training. It covers the model lifecycle (create, list, update,
// delete), price quoting, and starting training or validation runs.
//
// Training requests travel over the same dynamic gRPC connection as
// inference calls; the training proto is compiled into every service
// client's descriptor set. Each request carries train-call payment metadata
// bound to the model it concerns, so the daemon bills training work through
// the same payment channel as regular calls. Training and validation runs
// are paid at the price the daemon quotes for them; management requests are
// paid at the service's fixed call price.
//
// Obtain a client from a service:
//
//	trainer := service.Training()
//	modelID, err := trainer.CreateModel(&training.ModelParams{Name: "my-model"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	status, err := trainer.TrainModel(modelID)
package training
