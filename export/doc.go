// Package export writes ranked search results as CSV.
//
// Each result becomes one row. The matched sentences and their scores are
// written as JSON arrays of equal length, in the order the sentences were
// matched:
//
//	entity_id,display_name,raw_description,matched_sentences,matched_scores,aggregate_score
//	A,Acme,Acme Corp provides cloud security software.,"[""Acme Corp provides cloud security software.""]",[0.9938837346736189],0.9938837346736189
package export
