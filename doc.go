// Package bizmatch finds companies whose business descriptions are
// functionally closest to a free-text query.
//
// An Index ties the pipeline together. Company descriptions are split into
// sentences, sentences describing history or corporate structure are
// dropped, and the rest are embedded once into a corpus snapshot that is
// persisted in BadgerDB. A query is embedded, scored against every corpus
// sentence by cosine similarity, and companies are ranked by the mean score
// of their sentences.
//
//	idx, err := bizmatch.NewIndex("bizmatch.db")
//	if err != nil {
//		return err
//	}
//	defer idx.Close()
//
//	entities, err := source.ReadFile("companies.csv")
//	if err != nil {
//		return err
//	}
//	if _, err := idx.Refresh(ctx, entities); err != nil {
//		return err
//	}
//	results, err := idx.Search(ctx, "provides consultancy services.", 5)
package bizmatch
