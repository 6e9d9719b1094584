package store

import (
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/lexreader/chapterd/internal/book"
)

// PutDocument creates or replaces a document record. The segmentation
// worker calls this again after a build to write back ChapterIDs.
func (s *Store) PutDocument(doc *book.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDocs).Put([]byte(doc.ID), data)
	})
}

// GetDocument returns a document by id, or nil if absent.
func (s *Store) GetDocument(id string) (*book.Document, error) {
	var doc *book.Document
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketDocs).Get([]byte(id))
		if raw == nil {
			return nil
		}
		doc = new(book.Document)
		return json.Unmarshal(raw, doc)
	})
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", id, err)
	}
	return doc, nil
}

// ListDocuments returns all document records without their content,
// for listing endpoints.
func (s *Store) ListDocuments() ([]*book.Document, error) {
	var docs []*book.Document
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDocs).ForEach(func(_, raw []byte) error {
			doc := new(book.Document)
			if err := json.Unmarshal(raw, doc); err != nil {
				return err
			}
			doc.Content = ""
			docs = append(docs, doc)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document and everything derived from it:
// the cached chapter list, the chapter-id index entries and the
// chapter group.
func (s *Store) DeleteDocument(id string) error {
	if err := s.ClearChapters(id); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDocs).Delete([]byte(id))
	})
}
