// Package text turns raw business descriptions into functional sentence units.
//
// Normalizer collapses whitespace and splits descriptions into sentences with
// a punkt model, so abbreviations such as "Inc." do not end a sentence.
// FunctionalFilter then drops sentences about location, founding and naming
// history, which say nothing about what a company does.
package text
