package parser

import (
	"github.com/wippyai/bcreader/bitstream"
	"github.com/wippyai/bcreader/ir"
)

// Block ids of the module format.
const (
	BlockIDModule             uint32 = 8
	BlockIDParamAttr          uint32 = 9
	BlockIDParamAttrGroup     uint32 = 10
	BlockIDConstants          uint32 = 11
	BlockIDFunction           uint32 = 12
	BlockIDValueSymtab        uint32 = 14
	BlockIDMetadata           uint32 = 15
	BlockIDMetadataAttachment uint32 = 16
	BlockIDType               uint32 = 17
	BlockIDUseList            uint32 = 18
)

// Record codes in the module block.
const (
	ModuleCodeVersion     uint32 = 1  // [version#]
	ModuleCodeTriple      uint32 = 2  // [strchr x N]
	ModuleCodeDataLayout  uint32 = 3  // [strchr x N]
	ModuleCodeAsm         uint32 = 4  // [strchr x N]
	ModuleCodeSectionName uint32 = 5  // [strchr x N]
	ModuleCodeDepLib      uint32 = 6  // [strchr x N], unused
	ModuleCodeGlobalVar   uint32 = 7  // [pointer type, isconst, initid, linkage, ...]
	ModuleCodeFunction    uint32 = 8  // [type, callingconv, isproto, linkage, ...]
	ModuleCodeAlias       uint32 = 9  // [alias type, aliasee val#, linkage, ...]
	ModuleCodePurgeVals   uint32 = 10 // [numvals]
	ModuleCodeGCName      uint32 = 11 // [strchr x N]
	ModuleCodeComdat      uint32 = 12 // [selection_kind, name]
)

// Record codes in the type block.
const (
	TypeCodeNumEntry    uint32 = 1  // [numentries]
	TypeCodeVoid        uint32 = 2  // []
	TypeCodeFloat       uint32 = 3  // []
	TypeCodeDouble      uint32 = 4  // []
	TypeCodeLabel       uint32 = 5  // []
	TypeCodeOpaque      uint32 = 6  // [ispacked]
	TypeCodeInteger     uint32 = 7  // [width]
	TypeCodePointer     uint32 = 8  // [pointee type, address space]
	TypeCodeFunctionOld uint32 = 9  // [vararg, attrid, retty, paramty x N]
	TypeCodeHalf        uint32 = 10 // []
	TypeCodeArray       uint32 = 11 // [numelts, eltty]
	TypeCodeVector      uint32 = 12 // [numelts, eltty]
	TypeCodeX86FP80     uint32 = 13 // []
	TypeCodeFP128       uint32 = 14 // []
	TypeCodePPCFP128    uint32 = 15 // []
	TypeCodeMetadata    uint32 = 16 // []
	TypeCodeX86MMX      uint32 = 17 // []
	TypeCodeStructAnon  uint32 = 18 // [ispacked, eltty x N]
	TypeCodeStructName  uint32 = 19 // [strchr x N]
	TypeCodeStructNamed uint32 = 20 // [ispacked, eltty x N]
	TypeCodeFunction    uint32 = 21 // [vararg, retty, paramty x N]
)

// MaxIntegerWidth is one past the widest integer type the type block may declare.
const MaxIntegerWidth = 1 << 23

var blockNames = map[uint32]string{
	bitstream.BlockInfoID:     "BLOCKINFO",
	BlockIDModule:             "MODULE_BLOCK",
	BlockIDParamAttr:          "PARAMATTR_BLOCK",
	BlockIDParamAttrGroup:     "PARAMATTR_GROUP_BLOCK",
	BlockIDConstants:          "CONSTANTS_BLOCK",
	BlockIDFunction:           "FUNCTION_BLOCK",
	BlockIDValueSymtab:        "VALUE_SYMTAB",
	BlockIDMetadata:           "METADATA_BLOCK",
	BlockIDMetadataAttachment: "METADATA_ATTACHMENT",
	BlockIDType:               "TYPE_BLOCK",
	BlockIDUseList:            "USELIST_BLOCK",
}

// BlockName returns the conventional name of a block id, or "" if the id is
// not one of the known blocks.
func BlockName(id uint32) string {
	return blockNames[id]
}

var primitiveTypeCodes = map[uint32]ir.Kind{
	TypeCodeVoid:     ir.KindVoid,
	TypeCodeFloat:    ir.KindFloat,
	TypeCodeDouble:   ir.KindDouble,
	TypeCodeLabel:    ir.KindLabel,
	TypeCodeHalf:     ir.KindHalf,
	TypeCodeX86FP80:  ir.KindX86FP80,
	TypeCodeFP128:    ir.KindFP128,
	TypeCodePPCFP128: ir.KindPPCFP128,
	TypeCodeMetadata: ir.KindMetadata,
	TypeCodeX86MMX:   ir.KindX86MMX,
}
