// Package language canonicalizes the language settings handed to the speech
// and alignment models.
//
// Configuration may name a language by ISO 639-1 or 639-2 code, by a BCP 47
// tag with a region, or by its English name; the models and the alignment
// cache key only understand the base subtag.
package language
