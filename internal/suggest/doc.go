// Package suggest completes the tag mini-language of search queries.
//
// Tags are words prefixed with "@" that filter by file kind (@image, @ss)
// or pick a scoring metric (@lex, @clip). Not every pair of tags makes
// sense together, so each tag carries its own set of tags it may be combined
// with. A candidate is only suggested when every tag already in the query
// allows it.
package suggest
