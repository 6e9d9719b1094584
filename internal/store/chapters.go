package store

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/lexreader/chapterd/internal/book"
)

// ChapterKeyPrefix is the chapter-list key namespace in the chapters
// bucket.
const ChapterKeyPrefix = "documentChapters_"

func chapterKey(documentID string) []byte {
	return []byte(ChapterKeyPrefix + documentID)
}

// SaveChapters replaces the stored chapter list for a document. Every
// chapter's DocumentID and ListID are normalized to documentID before
// persisting, and identifiers colliding with chapters of other
// documents are reassigned so no two chapters across the entire store
// share an id. The persisted (possibly repaired) list is returned.
func (s *Store) SaveChapters(documentID string, chapters []book.Chapter) ([]book.Chapter, error) {
	out := make([]book.Chapter, len(chapters))
	copy(out, chapters)
	for i := range out {
		out[i].DocumentID = documentID
		out[i].ListID = documentID
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		idx := tx.Bucket(bucketChIndex)

		// Release identifiers held by the document's previous list.
		if err := s.dropIndexedIDs(tx, documentID); err != nil {
			return err
		}

		seen := make(map[string]struct{}, len(out))
		for i := range out {
			owner := idx.Get([]byte(out[i].ID))
			_, dup := seen[out[i].ID]
			if out[i].ID == "" || dup || (owner != nil && string(owner) != documentID) {
				s.log.Warn("chapter id collision on save, reassigning",
					"document_id", documentID, "chapter_id", out[i].ID)
				out[i].ID = uuid.NewString()
			}
			seen[out[i].ID] = struct{}{}
			if err := idx.Put([]byte(out[i].ID), []byte(documentID)); err != nil {
				return err
			}
		}

		data, err := json.Marshal(out)
		if err != nil {
			return fmt.Errorf("encode chapters: %w", err)
		}
		return tx.Bucket(bucketChapters).Put(chapterKey(documentID), data)
	})
	if err != nil {
		return nil, fmt.Errorf("save chapters for %s: %w", documentID, err)
	}
	return out, nil
}

// LoadChapters returns the cached chapter list for a document, or nil
// if none is stored. Loading runs inside an update transaction because
// the read path self-heals: duplicate identifiers (from a
// serialization bug or torn write) are repaired and the corrected list
// rewritten immediately.
func (s *Store) LoadChapters(documentID string) ([]book.Chapter, error) {
	var out []book.Chapter
	err := s.db.Update(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketChapters).Get(chapterKey(documentID))
		if raw == nil {
			return nil
		}
		var chapters []book.Chapter
		if err := json.Unmarshal(raw, &chapters); err != nil {
			return fmt.Errorf("decode chapters: %w", err)
		}

		repaired, changed := book.RepairDuplicateIDs(chapters)
		if changed {
			s.log.Warn("repaired duplicate chapter ids on load", "document_id", documentID)
			data, err := json.Marshal(repaired)
			if err != nil {
				return fmt.Errorf("encode repaired chapters: %w", err)
			}
			if err := tx.Bucket(bucketChapters).Put(chapterKey(documentID), data); err != nil {
				return err
			}
			idx := tx.Bucket(bucketChIndex)
			for _, ch := range repaired {
				if err := idx.Put([]byte(ch.ID), []byte(documentID)); err != nil {
					return err
				}
			}
		}
		out = repaired
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load chapters for %s: %w", documentID, err)
	}
	return out, nil
}

// ClearChapters removes the cached chapter list, its identifier index
// entries and the document's chapter group.
func (s *Store) ClearChapters(documentID string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := s.dropIndexedIDs(tx, documentID); err != nil {
			return err
		}
		if err := tx.Bucket(bucketChapters).Delete(chapterKey(documentID)); err != nil {
			return err
		}
		return tx.Bucket(bucketGroups).Delete([]byte(documentID))
	})
	if err != nil {
		return fmt.Errorf("clear chapters for %s: %w", documentID, err)
	}
	return nil
}

// dropIndexedIDs removes the chapter-id index entries of the
// document's currently stored list.
func (s *Store) dropIndexedIDs(tx *bolt.Tx, documentID string) error {
	raw := tx.Bucket(bucketChapters).Get(chapterKey(documentID))
	if raw == nil {
		return nil
	}
	var previous []book.Chapter
	if err := json.Unmarshal(raw, &previous); err != nil {
		// A corrupt previous list should not block the rewrite.
		s.log.Warn("discarding undecodable chapter list", "document_id", documentID, "error", err)
		return nil
	}
	idx := tx.Bucket(bucketChIndex)
	for _, ch := range previous {
		if err := idx.Delete([]byte(ch.ID)); err != nil {
			return err
		}
	}
	return nil
}

// AddToGroup registers items under a group key. Chapters are grouped
// under their document's identifier. Existing members are kept;
// duplicates are not added.
func (s *Store) AddToGroup(groupID string, itemIDs ...string) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		groups := tx.Bucket(bucketGroups)
		var members []string
		if raw := groups.Get([]byte(groupID)); raw != nil {
			if err := json.Unmarshal(raw, &members); err != nil {
				return fmt.Errorf("decode group %s: %w", groupID, err)
			}
		}
		existing := make(map[string]struct{}, len(members))
		for _, m := range members {
			existing[m] = struct{}{}
		}
		for _, id := range itemIDs {
			if _, ok := existing[id]; !ok {
				members = append(members, id)
				existing[id] = struct{}{}
			}
		}
		data, err := json.Marshal(members)
		if err != nil {
			return err
		}
		return groups.Put([]byte(groupID), data)
	})
}

// Group returns the member ids of a group, or nil if the group does
// not exist.
func (s *Store) Group(groupID string) ([]string, error) {
	var members []string
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketGroups).Get([]byte(groupID))
		if raw == nil {
			return nil
		}
		return json.Unmarshal(raw, &members)
	})
	if err != nil {
		return nil, fmt.Errorf("load group %s: %w", groupID, err)
	}
	return members, nil
}
