/*
Copyright © 2024 Alexandre Pires

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package streamserver

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/a13labs/radiocast/pkg/logger"
	"github.com/a13labs/radiocast/pkg/session"
	"github.com/a13labs/radiocast/pkg/upstream"

	"github.com/gorilla/mux"
)

// Server holds the per-process state: the session cache and the origin
// clients. Everything else is scoped to a single request or connection.
type Server struct {
	config   Config
	sessions *session.Store
	client   *upstream.Client
	media    *http.Client
}

func NewServer(config Config) *Server {
	client := upstream.NewClient(upstream.DefaultHeaders(), config.Timeout)
	return &Server{
		config:   config,
		sessions: session.NewStore(client),
		client:   client,
		media: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}
}

func Start(config Config) {

	logger.Infof("Starting radio stream proxy")
	logger.Infof("Stream source: %s", config.StreamURL)
	logger.Infof("Station: %s", config.StationName)

	s := NewServer(config)

	handler := mux.NewRouter()
	s.registerRoutes(handler)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler: cors(handler),
	}

	// Channel to listen for termination signal (SIGINT, SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		logger.Infof("Server listening on %s.", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("Server failed: %v", err)
		}
	}()

	<-quit // Wait for SIGINT or SIGTERM

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server shutdown.")
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		next.ServeHTTP(w, r)
	})
}
