package lightclient

import (
	"github.com/ethereum/go-ethereum/common"
)

// maxStoredHeaders bounds the in-memory history kept per chain. Headers older
// than the retention window are evicted and can only be found through the
// archive, if one is configured.
const maxStoredHeaders = 1000

// HeaderStore holds the ordered recent history of one chain, strictly
// increasing by block number. It does no I/O; the sync engine owns it.
type HeaderStore struct {
	headers []StoredHeader
}

func NewHeaderStore() *HeaderStore {
	return &HeaderStore{}
}

// Append pushes a header onto the tail, evicting from the head once the
// retention bound is exceeded. The tail is never evicted.
func (s *HeaderStore) Append(header StoredHeader) {
	s.headers = append(s.headers, header)
	for len(s.headers) > maxStoredHeaders {
		s.headers = s.headers[1:]
	}
}

// Tail returns the most recent header, if any.
func (s *HeaderStore) Tail() (StoredHeader, bool) {
	if len(s.headers) == 0 {
		return StoredHeader{}, false
	}
	return s.headers[len(s.headers)-1], true
}

// Len returns the number of stored headers.
func (s *HeaderStore) Len() int {
	return len(s.headers)
}

// ByHash returns the header with the given hash. A linear scan is fine at the
// retention bound.
func (s *HeaderStore) ByHash(hash common.Hash) (StoredHeader, bool) {
	for i := range s.headers {
		if s.headers[i].Hash == hash {
			return s.headers[i], true
		}
	}
	return StoredHeader{}, false
}

// TruncateToAncestor pops headers from the tail until the tail is the block
// with the given hash, returning the number of headers discarded. If no
// ancestor is found the store is left empty and the returned depth equals the
// previous length; the caller reports this as an unresolved reorg.
func (s *HeaderStore) TruncateToAncestor(ancestor common.Hash) uint64 {
	var depth uint64
	for len(s.headers) > 0 && s.headers[len(s.headers)-1].Hash != ancestor {
		s.headers = s.headers[:len(s.headers)-1]
		depth++
	}
	return depth
}

// Headers returns a copy of the stored headers, oldest first.
func (s *HeaderStore) Headers() []StoredHeader {
	headers := make([]StoredHeader, len(s.headers))
	copy(headers, s.headers)
	return headers
}
