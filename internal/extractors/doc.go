// Package extractors provides implementations of the Extractor interface
// for the supported file formats. Each extractor turns one family of file
// types into a stream of UTF-8 text blocks.
//
// Extractors are registered once in a static Registry keyed by extension.
package extractors
