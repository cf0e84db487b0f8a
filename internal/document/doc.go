// Package document implements the editor's document model.
//
// A Document is an ordered list of typed block nodes (paragraphs, headings,
// list items, quotes, code lines, dividers and images). Every node carries a
// stable id. Positions are rune offsets into the document's flat text, where
// blocks are joined by one separator position and atom blocks (images,
// dividers) occupy exactly one position.
//
// # Transactions
//
// Apply is the only write path. It hands a private copy of the blocks to the
// callback and commits it atomically when the callback returns nil:
//
//	snap, err := doc.Apply(func(tx *document.Tx) error {
//	    tx.Replace(rng, "Greetings, world.")
//	    return nil
//	})
//
// Upload patches never rely on remembered positions. They look nodes up by
// upload token inside the transaction:
//
//	idx, ok := tx.FindUploadToken(token)
//
// # Serialization
//
// Documents load from Markdown (parsed with goldmark) or JSON and export to
// both. The JSON form is what content-change hooks receive.
package document
