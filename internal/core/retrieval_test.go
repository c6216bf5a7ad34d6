package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimulateRetrieval(t *testing.T) {
	ids := []string{"doc-1", "doc-2"}

	tests := []struct {
		query string
		want  string
	}{
		{"Tell me about Python code", ProgrammingContext},
		{"I love PROGRAMMING", ProgrammingContext},
		{"What is SQL?", DatabaseContext},
		{"how do I tune a database", DatabaseContext},
		{"explain machine learning", MachineLearningContext},
		{"which model should I pick", MachineLearningContext},
		{"hello", FallbackContext},
		{"", FallbackContext},
		// Programming is checked before databases.
		{"python sql query", ProgrammingContext},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, SimulateRetrieval(tt.query, ids))
		})
	}
}

func TestSimulateRetrievalIgnoresDocumentIDs(t *testing.T) {
	assert.Equal(t, SimulateRetrieval("What is SQL?", nil), SimulateRetrieval("What is SQL?", []string{"a", "b", "c"}))
}
