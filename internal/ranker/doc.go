// Package ranker implements the scoring math for video search: cosine
// similarity ranking over the embedding index, and the hybrid blend of
// semantic and keyword relevance.
//
// Both rankers are pure over their inputs: they never mutate the index
// snapshot they are handed, and identical inputs produce identical output
// orderings. Ranking is a full scan, O(n*d) for n indexed videos of
// dimension d, which holds up at the platform's scale of thousands of
// videos; an approximate-nearest-neighbor index would be needed well
// before millions.
package ranker
