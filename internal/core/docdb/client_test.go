package docdb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/itera/chatbot-service/internal/core/docdb"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    docdb.Type
		wantErr bool
	}{
		{"mongodb", docdb.TypeMongoDB, false},
		{"CosmosDB", docdb.TypeCosmosDB, false},
		{"postgres", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := docdb.ParseType(tt.in)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
