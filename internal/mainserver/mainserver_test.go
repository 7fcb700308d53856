package mainserver

import (
	"context"
	"testing"

	"github.com/evidenceledger/proxybid/internal/bidconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateDirOnlyInDevelopment(t *testing.T) {
	assert.Empty(t, templateDir(false))
	assert.Equal(t, devTemplateDir, templateDir(true))
}

func TestNewWiresServices(t *testing.T) {
	cfg, err := bidconfig.Load("", true)
	require.NoError(t, err)
	cfg.DatabaseDSN = t.TempDir() + "/proxybid.db"
	cfg.RedisURL = ""

	s, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, s.bidServer)
	assert.Nil(t, s.redis)
}
