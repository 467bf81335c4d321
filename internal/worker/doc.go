// Package worker rebuilds the site on request from a Redis stream.
//
// Requests are read through a consumer group one at a time, so a single
// worker never runs two builds against the same output directory. Each build
// report is published to the result stream without its per-page details and
// stored in full under the last-build key.
//
// Example usage:
//
//	cfg, _ := config.Load()
//	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
//	store := worker.NewStore(redisClient, cfg.LastBuildKey)
//
//	w := worker.NewWorker(cfg, redisClient, buildSite, store, logger)
//	if err := w.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// A request is either a "data" field holding JSON:
//
//	XADD sitegen.build * data '{"request_id":"r1","reason":"content update"}'
//
// or the same keys as flat fields. A missing request_id is generated.
// Failures go to the result stream with an ".errors" suffix.
//
// Health checks are provided via a separate HTTP server:
//
//	healthServer := worker.NewHealthServer(8082, redisClient, store, logger)
//	healthServer.Start()
//	defer healthServer.Stop()
package worker
