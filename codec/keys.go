package codec

// Prefix bytes for each key family, per spec.md §6's persistent key
// layout table. Grounded on original_source/src/lvdbstorage/databaseKey.hpp's
// per-family prefix constants.
const (
	PrefixTermType      byte = 't' // name -> packed typeno
	PrefixTermValue     byte = 'i' // name -> packed termno
	PrefixDocID         byte = 'd' // name -> packed docno
	PrefixUserName      byte = 'u' // name -> packed userno
	PrefixForward       byte = 'r' // typeno+docno+maxpos -> ForwardBlock
	PrefixVariable      byte = 'v' // name -> packed value (global counters)
	PrefixMeta          byte = 'm' // blockno -> MetaBlock
	PrefixDocAttribute  byte = 'a' // docno+attrno -> utf8 string
	PrefixDocFrequency  byte = 'f' // typeno+termno -> packed df
	PrefixPostingBlock  byte = 'p' // typeno+termno+maxdocno -> PostingBlock
	PrefixDocsetBlock   byte = 'b' // typeno+termno+maxdocno -> DocSetBlock
	PrefixUserAclBlock  byte = 'U' // userno+maxdocno -> DocSetBlock (user->docs)
	PrefixAclBlock      byte = 'D' // docno+maxuserno -> DocSetBlock (doc->users)
	PrefixInvTerm       byte = 'I' // docno -> InvTermBlock
	PrefixAttributeName byte = 'A' // name -> packed attrno
	PrefixMetaDescr     byte = 'M' // empty -> MetaDescription
)

// Well-known names used with the Variable ('v') family for the global
// counters of spec.md §3 ("Global variables").
const (
	VarNofDocs    = "NofDocs"
	VarNextDocno  = "NextDocno"
	VarNextTermno = "NextTermno"
	VarNextTypeno = "NextTypeno"
	VarNextUserno = "NextUserno"
	VarNextAttrno = "NextAttrno"
)

func withPrefix(prefix byte, rest ...[]byte) []byte {
	n := 1
	for _, r := range rest {
		n += len(r)
	}
	out := make([]byte, 1, n)
	out[0] = prefix
	for _, r := range rest {
		out = append(out, r...)
	}
	return out
}

// NameKey builds a "prefix + raw name bytes" key, used by every symbol
// table family (term-type, term-value, doc-id, user-name, attribute-name)
// and the Variable family.
func NameKey(prefix byte, name string) []byte {
	return withPrefix(prefix, []byte(name))
}

// ForwardBlockKey builds the 'r' family key: typeno, docno, then the
// block's max position (the block id, per the "block key ends with the
// block id" convention of spec.md §4.1).
func ForwardBlockKey(typeno, docno uint32, maxPos uint16) []byte {
	return withPrefix(PrefixForward, PackUint32(typeno), PackUint32(docno), PackUint16(maxPos))
}

// ForwardBlockPrefix builds the scan prefix for every ForwardBlock of
// (typeno, docno), in block-id (max position) order.
func ForwardBlockPrefix(typeno, docno uint32) []byte {
	return withPrefix(PrefixForward, PackUint32(typeno), PackUint32(docno))
}

// MetaBlockKey builds the 'm' family key for the given block number.
func MetaBlockKey(blockno uint32) []byte {
	return withPrefix(PrefixMeta, PackUint32(blockno))
}

// DocAttributeKey builds the 'a' family key for (docno, attrno).
func DocAttributeKey(docno, attrno uint32) []byte {
	return withPrefix(PrefixDocAttribute, PackUint32(docno), PackUint32(attrno))
}

// DocAttributePrefix builds the scan prefix for every attribute of docno.
func DocAttributePrefix(docno uint32) []byte {
	return withPrefix(PrefixDocAttribute, PackUint32(docno))
}

// DocFrequencyKey builds the 'f' family key for (typeno, termno).
func DocFrequencyKey(typeno, termno uint32) []byte {
	return withPrefix(PrefixDocFrequency, PackUint32(typeno), PackUint32(termno))
}

// PostingBlockKey builds the 'p' family key: typeno, termno, then the
// block's max document number (the block id).
func PostingBlockKey(typeno, termno, maxDocno uint32) []byte {
	return withPrefix(PrefixPostingBlock, PackUint32(typeno), PackUint32(termno), PackUint32(maxDocno))
}

// PostingChainPrefix builds the scan prefix for every PostingBlock of
// (typeno, termno), in block-id order.
func PostingChainPrefix(typeno, termno uint32) []byte {
	return withPrefix(PrefixPostingBlock, PackUint32(typeno), PackUint32(termno))
}

// DocsetBlockKey builds the 'b' family key: typeno, termno, max docno.
func DocsetBlockKey(typeno, termno, maxDocno uint32) []byte {
	return withPrefix(PrefixDocsetBlock, PackUint32(typeno), PackUint32(termno), PackUint32(maxDocno))
}

// DocsetChainPrefix builds the scan prefix for every DocSetBlock of
// (typeno, termno).
func DocsetChainPrefix(typeno, termno uint32) []byte {
	return withPrefix(PrefixDocsetBlock, PackUint32(typeno), PackUint32(termno))
}

// UserAclBlockKey builds the 'U' family key: userno, max docno.
func UserAclBlockKey(userno, maxDocno uint32) []byte {
	return withPrefix(PrefixUserAclBlock, PackUint32(userno), PackUint32(maxDocno))
}

// UserAclChainPrefix builds the scan prefix for every DocSetBlock of
// userno's readable-document set.
func UserAclChainPrefix(userno uint32) []byte {
	return withPrefix(PrefixUserAclBlock, PackUint32(userno))
}

// AclBlockKey builds the 'D' family key: docno, max userno.
func AclBlockKey(docno, maxUserno uint32) []byte {
	return withPrefix(PrefixAclBlock, PackUint32(docno), PackUint32(maxUserno))
}

// AclChainPrefix builds the scan prefix for every DocSetBlock of docno's
// authorized-reader set.
func AclChainPrefix(docno uint32) []byte {
	return withPrefix(PrefixAclBlock, PackUint32(docno))
}

// InvTermBlockKey builds the 'I' family key for docno.
func InvTermBlockKey(docno uint32) []byte {
	return withPrefix(PrefixInvTerm, PackUint32(docno))
}

// MetaDescrKey builds the 'M' family key (empty body, single record).
func MetaDescrKey() []byte {
	return []byte{PrefixMetaDescr}
}

// BlockKeyID extracts the trailing packed block id (the last packed
// integer in the key) from a block-family key, given the length of the
// prefix before it (prefix byte + any packed ids before the block id,
// whose packed widths vary with their values). Callers pass the offset
// at which the block id's encoding starts.
func BlockKeyID(key []byte, offset int) (uint32, error) {
	v, _, err := UnpackUint32(key[offset:])
	return v, err
}
