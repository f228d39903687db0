package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joomlactl/joomlactl/pkg/credentials"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"pa'ss", `pa\'ss`},
		{`back\slash`, `back\\slash`},
		{`both'\`, `both\'\\`},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escape(tt.in))
	}
}

func TestDropSiteRefusesIncompleteRecord(t *testing.T) {
	m := NewManager("/nonexistent.sock", false)

	err := m.DropSite(context.Background(), &credentials.Record{DBName: "joomla_db"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "incomplete")
}

func TestNewManagerDefaultSocket(t *testing.T) {
	m := NewManager("", false)
	assert.Equal(t, DefaultSocket, m.socket)
}
