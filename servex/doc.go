// Package servex is a small blocking HTTP/1.1 request-serving engine.
//
// A fixed-size worker pool executes one connection per worker: the
// worker incrementally reads a complete request from the socket,
// parses it, runs the handler, writes the response and closes the
// connection. There is no keep-alive, no pipelining and no chunked
// transfer; each connection carries exactly one request.
//
//	s := &servex.Server{
//	    Addr:    ":8080",
//	    Workers: 8,
//	    Handler: servex.HandlerFunc(func(w servex.ResponseWriter, r *servex.Request) {
//	        w.Header().Set("Content-Type", "text/plain; charset=utf-8")
//	        w.WriteHeader(200)
//	        w.Write([]byte("hello"))
//	    }),
//	}
//	if err := s.ListenAndServe(); err != servex.ErrServerClosed {
//	    log.Fatal(err)
//	}
//
// Pool size is the hard bound on concurrently handled connections; a
// slow client occupies one worker for the lifetime of its request.
// Excess accepted connections queue as pending pool tasks.
package servex
