package core

import (
	"strings"
)

// Canned retrieval passages. They stand in for chunks a vector search over
// the conversation's documents would return.
const (
	ProgrammingContext = "Python is a high-level, interpreted programming language known for its readability and versatility. " +
		"It supports multiple programming paradigms including procedural, object-oriented, and functional programming. " +
		"Python's syntax emphasizes readability with its use of significant indentation."

	MachineLearningContext = "Machine learning is a subset of artificial intelligence that focuses on building systems that learn from data. " +
		"It involves algorithms that improve automatically through experience. Common types include supervised learning, " +
		"unsupervised learning, and reinforcement learning."

	DatabaseContext = "A database is an organized collection of data stored and accessed electronically. " +
		"SQL (Structured Query Language) is a standard language for managing and querying relational databases. " +
		"Common database systems include PostgreSQL, MySQL, SQLite, and MongoDB."

	FallbackContext = "This is a general context for the conversation. The system is designed to provide helpful and accurate information " +
		"based on retrieved documents. In a real implementation, this context would come from relevant document chunks " +
		"retrieved using vector similarity search."
)

type retrievalCategory struct {
	keywords []string
	passage  string
}

// Checked in order; the first category with a matching keyword wins.
var retrievalCategories = []retrievalCategory{
	{keywords: []string{"python", "code", "programming"}, passage: ProgrammingContext},
	{keywords: []string{"machine learning", "ml", "ai", "model"}, passage: MachineLearningContext},
	{keywords: []string{"database", "sql", "query"}, passage: DatabaseContext},
}

// SimulateRetrieval returns the canned passage for the first keyword category
// found in query. Keywords match as substrings of the lower-cased query.
// documentIDs is accepted for interface parity with a real retriever and does
// not affect the result.
func SimulateRetrieval(query string, documentIDs []string) string {
	_ = documentIDs
	q := strings.ToLower(query)
	for _, category := range retrievalCategories {
		for _, kw := range category.keywords {
			if strings.Contains(q, kw) {
				return category.passage
			}
		}
	}
	return FallbackContext
}
