package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdugdh24/mpit2026-matching/internal/config"
)

func TestServerStartAndShutdown(t *testing.T) {
	srv := NewServer(&config.ServerConfig{Host: "127.0.0.1", Port: 0}, http.NotFoundHandler(), nil)
	assert.Equal(t, "127.0.0.1:0", srv.Addr())

	done := make(chan error, 1)
	go func() { done <- srv.Start() }()

	// Shutdown may race ahead of ListenAndServe; either way Start returns nil.
	time.Sleep(50 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		require.FailNow(t, "server did not stop")
	}
}
