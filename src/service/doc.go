// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package service is the entry point for running artifact builds.
//
// A [Service] owns one builder per [builder.Kind] and a mutex that admits a
// single build at a time. [Service.Build] takes a typed configuration;
// [Service.BuildJSON] takes a JSON document in any [model.NamingPolicy],
// validates it against the configuration schema and answers in the same policy.
//
// Every finished build is counted in Prometheus collectors exposed through
// [Service.Metrics] and [Service.WriteMetrics].
//
// Example:
//
//	svc, err := service.New(service.WithLogger(logger.NewCLILogger()))
//	if err != nil {
//		return err
//	}
//	out, err := svc.Build(ctx, &model.Config{
//		Mode:    model.ModeKeyPair,
//		KeyPair: &model.KeyPairSpec{Algorithm: model.KeyAlgorithmECDSA, Curve: model.CurveP256},
//	}, nil)
package service
