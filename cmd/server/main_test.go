package main

import (
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandFlags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"addr", "data", "log-level", "journal-retention", "admin-address"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}

	sub, _, err := cmd.Find([]string{"healthcheck"})
	require.NoError(t, err)
	assert.Equal(t, "healthcheck", sub.Name())
}

func TestRunHealthCheck(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		w.WriteHeader(status)
	}))
	defer srv.Close()

	_, port, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)

	assert.NoError(t, runHealthCheck(":"+port))

	status = http.StatusServiceUnavailable
	assert.Error(t, runHealthCheck(":"+port))
}
