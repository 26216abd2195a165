package bitstream

// Reserved block ids.
const (
	BlockInfoID uint32 = 0

	// FirstApplicationBlockID is the first id available to application blocks.
	FirstApplicationBlockID uint32 = 8
)

// Record codes inside the blockinfo block.
const (
	BlockInfoCodeSetBID        uint32 = 1
	BlockInfoCodeBlockName     uint32 = 2
	BlockInfoCodeSetRecordName uint32 = 3
)

// RecordName associates a record code with a display name.
type RecordName struct {
	Name string
	Code uint32
}

// BlockInfo holds the names and abbreviations declared for one block id in
// the blockinfo block.
type BlockInfo struct {
	Name        string
	RecordNames []RecordName
	Abbrevs     []*Abbreviation
	BlockID     uint32
}

// RecordName returns the name registered for code, if any.
func (b *BlockInfo) RecordName(code uint32) (string, bool) {
	for _, rn := range b.RecordNames {
		if rn.Code == code {
			return rn.Name, true
		}
	}
	return "", false
}

// Registry is the session-wide table of BlockInfo entries keyed by block id.
// Lookups hit a last-used cache first because blockinfo records arrive in runs
// for the same id.
type Registry struct {
	infos []*BlockInfo
	last  int
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{last: -1}
}

// Get returns the BlockInfo registered for id.
func (r *Registry) Get(id uint32) (*BlockInfo, bool) {
	if r.last >= 0 && r.last < len(r.infos) && r.infos[r.last].BlockID == id {
		return r.infos[r.last], true
	}
	for i, info := range r.infos {
		if info.BlockID == id {
			r.last = i
			return info, true
		}
	}
	return nil, false
}

// GetOrCreate returns the BlockInfo for id, registering an empty one first if needed.
func (r *Registry) GetOrCreate(id uint32) *BlockInfo {
	if info, ok := r.Get(id); ok {
		return info
	}
	info := &BlockInfo{BlockID: id}
	r.infos = append(r.infos, info)
	r.last = len(r.infos) - 1
	return info
}

// HasEntries reports whether any BlockInfo has been registered.
func (r *Registry) HasEntries() bool {
	return len(r.infos) > 0
}

// Len returns the number of registered entries.
func (r *Registry) Len() int {
	return len(r.infos)
}

// All returns the registered entries in registration order.
func (r *Registry) All() []*BlockInfo {
	return append([]*BlockInfo(nil), r.infos...)
}
