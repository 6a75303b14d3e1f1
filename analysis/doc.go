// Package analysis produces the contract analysis for a staged document.
//
// Invoker builds the instruction for the requested party perspective, makes a
// single bounded call to an interfaces.Generator and normalizes the answer into
// an HTML fragment (StripCodeFences). GeminiGenerator is the production
// generator: it extracts the document text (ExtractText) and sends it to a
// Gemini model.
package analysis
