// Package source reads the company corpus from CSV.
//
// Columns are located by header name, case-insensitively. Each logical
// column accepts several spellings:
//
//	id:          entity_id, ticker, id
//	name:        display_name, company name, company_name, name
//	description: raw_description, business description, business_description, description
//
// A file without an id column uses the company name as the id. The
// description column may be missing or blank; such companies are kept and
// reported as having an empty description when the corpus is built.
package source
