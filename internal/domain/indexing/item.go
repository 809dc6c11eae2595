package indexing

import (
	"fmt"
	"time"
)

// Item tracks the indexing state of one content thread. Records are never
// deleted; an explicit clear-index operation resets the flags instead.
type Item struct {
	itemID        uint
	contentHash   string
	localIndexed  bool
	cloudIndexed  bool
	hasImage      bool
	lastIndexedAt *time.Time
}

func NewItem(itemID uint, hasImage bool) (*Item, error) {
	if itemID == 0 {
		return nil, fmt.Errorf("item ID cannot be zero")
	}
	return &Item{itemID: itemID, hasImage: hasImage}, nil
}

// ReconstructItem rebuilds the record from persistence.
func ReconstructItem(itemID uint, contentHash string, localIndexed, cloudIndexed, hasImage bool, lastIndexedAt *time.Time) (*Item, error) {
	if itemID == 0 {
		return nil, fmt.Errorf("item ID cannot be zero")
	}
	return &Item{
		itemID:        itemID,
		contentHash:   contentHash,
		localIndexed:  localIndexed,
		cloudIndexed:  cloudIndexed,
		hasImage:      hasImage,
		lastIndexedAt: lastIndexedAt,
	}, nil
}

func (i *Item) ItemID() uint              { return i.itemID }
func (i *Item) ContentHash() string       { return i.contentHash }
func (i *Item) LocalIndexed() bool        { return i.localIndexed }
func (i *Item) CloudIndexed() bool        { return i.cloudIndexed }
func (i *Item) HasImage() bool            { return i.hasImage }
func (i *Item) LastIndexedAt() *time.Time { return i.lastIndexedAt }

// MarkIndexed records a successful submission with the fingerprint that was
// actually embedded.
func (i *Item) MarkIndexed(contentHash string, at time.Time) {
	i.contentHash = contentHash
	i.cloudIndexed = true
	i.localIndexed = true
	i.lastIndexedAt = &at
}

// SetHasImage updates the image flag from the content repository.
func (i *Item) SetHasImage(has bool) {
	i.hasImage = has
}

// ResetFlags clears both indexed flags as part of clear-index.
func (i *Item) ResetFlags() {
	i.localIndexed = false
	i.cloudIndexed = false
	i.contentHash = ""
	i.lastIndexedAt = nil
}
