package learnsearch

// Normalize derives one IndexedRecord per document, preserving input order.
// IDs are positions in the output and are only stable within one run.
func Normalize(docs []*Document) []IndexedRecord {
	records := make([]IndexedRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, IndexedRecord{
			ID:       len(records),
			Text:     doc.CombinedText(),
			Metadata: doc,
		})
	}
	return records
}
