// Package history records the search actions a user has taken so they can go
// back through them.
//
// Items are a closed sum type: QueryAction for text searches and
// SemanticAction for similarity searches, matched with a type switch:
//
//	switch a := item.(type) {
//	case history.QueryAction:
//	    search(a.Query)
//	case history.SemanticAction:
//	    similar(a.Variant, a.Target)
//	}
//
// See Stack.Back for the two-pop protocol used to go back.
package history
