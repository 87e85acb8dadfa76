// Package server runs an http.Handler with graceful shutdown.
//
//	srv, err := server.NewFromConfig(cfg, server.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//	return srv.Run(ctx, router)
//
// Run blocks until the context is canceled, then stops accepting
// connections and waits up to the shutdown timeout for in-flight requests.
// The default write timeout is long enough for a follow-up answer to be
// generated inside one request.
package server
