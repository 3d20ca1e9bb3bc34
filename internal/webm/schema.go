package webm

// ElementID is an EBML element ID with its marker bit included.
type ElementID uint32

// ElementKind is the value type of an element body.
type ElementKind uint8

const (
	KindMaster ElementKind = iota
	KindUint
	KindInt
	KindFloat
	KindString
	KindUTF8
	KindDate
	KindBinary
)

func (k ElementKind) String() string {
	switch k {
	case KindMaster:
		return "master"
	case KindUint:
		return "uint"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindUTF8:
		return "utf-8"
	case KindDate:
		return "date"
	case KindBinary:
		return "binary"
	default:
		return "unknown"
	}
}

const (
	IDEBML               ElementID = 0x1A45DFA3
	IDEBMLVersion        ElementID = 0x4286
	IDEBMLReadVersion    ElementID = 0x42F7
	IDEBMLMaxIDLength    ElementID = 0x42F2
	IDEBMLMaxSizeLength  ElementID = 0x42F3
	IDDocType            ElementID = 0x4282
	IDDocTypeVersion     ElementID = 0x4287
	IDDocTypeReadVersion ElementID = 0x4285

	IDVoid  ElementID = 0xEC
	IDCRC32 ElementID = 0xBF

	IDSegment      ElementID = 0x18538067
	IDSeekHead     ElementID = 0x114D9B74
	IDSeek         ElementID = 0x4DBB
	IDSeekID       ElementID = 0x53AB
	IDSeekPosition ElementID = 0x53AC

	IDInfo          ElementID = 0x1549A966
	IDTimecodeScale ElementID = 0x2AD7B1
	IDDuration      ElementID = 0x4489
	IDDateUTC       ElementID = 0x4461
	IDTitle         ElementID = 0x7BA9
	IDMuxingApp     ElementID = 0x4D80
	IDWritingApp    ElementID = 0x5741
	IDSegmentUID    ElementID = 0x73A4

	IDTracks          ElementID = 0x1654AE6B
	IDTrackEntry      ElementID = 0xAE
	IDTrackNumber     ElementID = 0xD7
	IDTrackUID        ElementID = 0x73C5
	IDTrackType       ElementID = 0x83
	IDFlagEnabled     ElementID = 0xB9
	IDFlagDefault     ElementID = 0x88
	IDFlagForced      ElementID = 0x55AA
	IDFlagLacing      ElementID = 0x9C
	IDDefaultDuration ElementID = 0x23E383
	IDName            ElementID = 0x536E
	IDLanguage        ElementID = 0x22B59C
	IDCodecID         ElementID = 0x86
	IDCodecPrivate    ElementID = 0x63A2
	IDCodecName       ElementID = 0x258688
	IDCodecDelay      ElementID = 0x56AA
	IDSeekPreRoll     ElementID = 0x56BB

	IDVideo             ElementID = 0xE0
	IDAudio             ElementID = 0xE1
	IDSamplingFrequency ElementID = 0xB5
	IDOutputSampling    ElementID = 0x78B5
	IDChannels          ElementID = 0x9F
	IDBitDepth          ElementID = 0x6264

	IDCluster         ElementID = 0x1F43B675
	IDTimecode        ElementID = 0xE7
	IDPosition        ElementID = 0xA7
	IDPrevSize        ElementID = 0xAB
	IDSimpleBlock     ElementID = 0xA3
	IDBlockGroup      ElementID = 0xA0
	IDBlock           ElementID = 0xA1
	IDBlockVirtual    ElementID = 0xA2
	IDBlockAdditions  ElementID = 0x75A1
	IDBlockMore       ElementID = 0xA6
	IDBlockAddID      ElementID = 0xEE
	IDBlockAdditional ElementID = 0xA5
	IDBlockDuration   ElementID = 0x9B
	IDReferenceBlock  ElementID = 0xFB
	IDDiscardPadding  ElementID = 0x75A2
	IDEncryptedBlock  ElementID = 0xAF

	IDCues        ElementID = 0x1C53BB6B
	IDChapters    ElementID = 0x1043A770
	IDTags        ElementID = 0x1254C367
	IDTag         ElementID = 0x7373
	IDTargets     ElementID = 0x63C0
	IDSimpleTag   ElementID = 0x67C8
	IDTagName     ElementID = 0x45A3
	IDTagString   ElementID = 0x4487
	IDAttachments ElementID = 0x1941A469
)

// Descriptor describes one element type.
type Descriptor struct {
	ID   ElementID
	Name string
	Kind ElementKind
	// Parent is the ID of the enclosing master, zero for top level elements.
	Parent ElementID
	// Global elements may appear inside any master.
	Global bool
	// Skip marks elements consumed by length without being decoded.
	Skip bool
}

var descriptorList = []Descriptor{
	{ID: IDEBML, Name: "EBML", Kind: KindMaster},
	{ID: IDEBMLVersion, Name: "EBMLVersion", Kind: KindUint, Parent: IDEBML},
	{ID: IDEBMLReadVersion, Name: "EBMLReadVersion", Kind: KindUint, Parent: IDEBML},
	{ID: IDEBMLMaxIDLength, Name: "EBMLMaxIDLength", Kind: KindUint, Parent: IDEBML},
	{ID: IDEBMLMaxSizeLength, Name: "EBMLMaxSizeLength", Kind: KindUint, Parent: IDEBML},
	{ID: IDDocType, Name: "DocType", Kind: KindString, Parent: IDEBML},
	{ID: IDDocTypeVersion, Name: "DocTypeVersion", Kind: KindUint, Parent: IDEBML},
	{ID: IDDocTypeReadVersion, Name: "DocTypeReadVersion", Kind: KindUint, Parent: IDEBML},

	{ID: IDVoid, Name: "Void", Kind: KindBinary, Global: true, Skip: true},
	{ID: IDCRC32, Name: "CRC-32", Kind: KindBinary, Global: true, Skip: true},

	{ID: IDSegment, Name: "Segment", Kind: KindMaster},
	{ID: IDSeekHead, Name: "SeekHead", Kind: KindMaster, Parent: IDSegment, Skip: true},
	{ID: IDSeek, Name: "Seek", Kind: KindMaster, Parent: IDSeekHead},
	{ID: IDSeekID, Name: "SeekID", Kind: KindBinary, Parent: IDSeek},
	{ID: IDSeekPosition, Name: "SeekPosition", Kind: KindUint, Parent: IDSeek},

	{ID: IDInfo, Name: "Info", Kind: KindMaster, Parent: IDSegment},
	{ID: IDTimecodeScale, Name: "TimecodeScale", Kind: KindUint, Parent: IDInfo},
	{ID: IDDuration, Name: "Duration", Kind: KindFloat, Parent: IDInfo},
	{ID: IDDateUTC, Name: "DateUTC", Kind: KindDate, Parent: IDInfo},
	{ID: IDTitle, Name: "Title", Kind: KindUTF8, Parent: IDInfo},
	{ID: IDMuxingApp, Name: "MuxingApp", Kind: KindUTF8, Parent: IDInfo},
	{ID: IDWritingApp, Name: "WritingApp", Kind: KindUTF8, Parent: IDInfo},
	{ID: IDSegmentUID, Name: "SegmentUID", Kind: KindBinary, Parent: IDInfo},

	{ID: IDTracks, Name: "Tracks", Kind: KindMaster, Parent: IDSegment},
	{ID: IDTrackEntry, Name: "TrackEntry", Kind: KindMaster, Parent: IDTracks},
	{ID: IDTrackNumber, Name: "TrackNumber", Kind: KindUint, Parent: IDTrackEntry},
	{ID: IDTrackUID, Name: "TrackUID", Kind: KindUint, Parent: IDTrackEntry},
	{ID: IDTrackType, Name: "TrackType", Kind: KindUint, Parent: IDTrackEntry},
	{ID: IDFlagEnabled, Name: "FlagEnabled", Kind: KindUint, Parent: IDTrackEntry},
	{ID: IDFlagDefault, Name: "FlagDefault", Kind: KindUint, Parent: IDTrackEntry},
	{ID: IDFlagForced, Name: "FlagForced", Kind: KindUint, Parent: IDTrackEntry},
	{ID: IDFlagLacing, Name: "FlagLacing", Kind: KindUint, Parent: IDTrackEntry},
	{ID: IDDefaultDuration, Name: "DefaultDuration", Kind: KindUint, Parent: IDTrackEntry},
	{ID: IDName, Name: "Name", Kind: KindUTF8, Parent: IDTrackEntry},
	{ID: IDLanguage, Name: "Language", Kind: KindString, Parent: IDTrackEntry},
	{ID: IDCodecID, Name: "CodecID", Kind: KindString, Parent: IDTrackEntry},
	{ID: IDCodecPrivate, Name: "CodecPrivate", Kind: KindBinary, Parent: IDTrackEntry},
	{ID: IDCodecName, Name: "CodecName", Kind: KindUTF8, Parent: IDTrackEntry},
	{ID: IDCodecDelay, Name: "CodecDelay", Kind: KindUint, Parent: IDTrackEntry},
	{ID: IDSeekPreRoll, Name: "SeekPreRoll", Kind: KindUint, Parent: IDTrackEntry},
	{ID: IDVideo, Name: "Video", Kind: KindMaster, Parent: IDTrackEntry, Skip: true},
	{ID: IDAudio, Name: "Audio", Kind: KindMaster, Parent: IDTrackEntry},
	{ID: IDSamplingFrequency, Name: "SamplingFrequency", Kind: KindFloat, Parent: IDAudio},
	{ID: IDOutputSampling, Name: "OutputSamplingFrequency", Kind: KindFloat, Parent: IDAudio},
	{ID: IDChannels, Name: "Channels", Kind: KindUint, Parent: IDAudio},
	{ID: IDBitDepth, Name: "BitDepth", Kind: KindUint, Parent: IDAudio},

	{ID: IDCluster, Name: "Cluster", Kind: KindMaster, Parent: IDSegment},
	{ID: IDTimecode, Name: "Timecode", Kind: KindUint, Parent: IDCluster},
	{ID: IDPosition, Name: "Position", Kind: KindUint, Parent: IDCluster},
	{ID: IDPrevSize, Name: "PrevSize", Kind: KindUint, Parent: IDCluster},
	{ID: IDSimpleBlock, Name: "SimpleBlock", Kind: KindBinary, Parent: IDCluster},
	{ID: IDBlockGroup, Name: "BlockGroup", Kind: KindMaster, Parent: IDCluster},
	{ID: IDBlock, Name: "Block", Kind: KindBinary, Parent: IDBlockGroup},
	{ID: IDBlockVirtual, Name: "BlockVirtual", Kind: KindBinary, Parent: IDBlockGroup},
	{ID: IDBlockAdditions, Name: "BlockAdditions", Kind: KindMaster, Parent: IDBlockGroup},
	{ID: IDBlockMore, Name: "BlockMore", Kind: KindMaster, Parent: IDBlockAdditions},
	{ID: IDBlockAddID, Name: "BlockAddID", Kind: KindUint, Parent: IDBlockMore},
	{ID: IDBlockAdditional, Name: "BlockAdditional", Kind: KindBinary, Parent: IDBlockMore},
	{ID: IDBlockDuration, Name: "BlockDuration", Kind: KindUint, Parent: IDBlockGroup},
	{ID: IDReferenceBlock, Name: "ReferenceBlock", Kind: KindInt, Parent: IDBlockGroup},
	{ID: IDDiscardPadding, Name: "DiscardPadding", Kind: KindInt, Parent: IDBlockGroup},
	{ID: IDEncryptedBlock, Name: "EncryptedBlock", Kind: KindBinary, Parent: IDCluster},

	{ID: IDCues, Name: "Cues", Kind: KindMaster, Parent: IDSegment, Skip: true},
	{ID: IDChapters, Name: "Chapters", Kind: KindMaster, Parent: IDSegment, Skip: true},
	{ID: IDTags, Name: "Tags", Kind: KindMaster, Parent: IDSegment, Skip: true},
	{ID: IDTag, Name: "Tag", Kind: KindMaster, Parent: IDTags},
	{ID: IDTargets, Name: "Targets", Kind: KindMaster, Parent: IDTag},
	{ID: IDSimpleTag, Name: "SimpleTag", Kind: KindMaster, Parent: IDTag},
	{ID: IDTagName, Name: "TagName", Kind: KindUTF8, Parent: IDSimpleTag},
	{ID: IDTagString, Name: "TagString", Kind: KindUTF8, Parent: IDSimpleTag},
	{ID: IDAttachments, Name: "Attachments", Kind: KindMaster, Parent: IDSegment, Skip: true},
}

var descriptors = func() map[ElementID]Descriptor {
	m := make(map[ElementID]Descriptor, len(descriptorList))
	for _, d := range descriptorList {
		m[d.ID] = d
	}
	return m
}()

// Lookup returns the descriptor registered for id.
func Lookup(id ElementID) (Descriptor, bool) {
	d, ok := descriptors[id]
	return d, ok
}

func (id ElementID) String() string {
	if d, ok := descriptors[id]; ok {
		return d.Name
	}
	return "Unknown"
}

// descendsFrom reports whether an element of type d may appear somewhere
// below a master with the given ID.
func descendsFrom(d Descriptor, ancestor ElementID) bool {
	if d.Global {
		return true
	}
	for parent := d.Parent; parent != 0; {
		if parent == ancestor {
			return true
		}
		pd, ok := descriptors[parent]
		if !ok {
			return false
		}
		parent = pd.Parent
	}
	return false
}
