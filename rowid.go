// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pageflow

// RowID is a 64-bit value bijectively packing a partition index into its
// high 32 bits and a local row id into its low 32 bits. RecordCursor.RecordAt
// depends on this exact encoding to address a row without re-entering the
// reader.
type RowID int64

// EncodeRowID packs partitionIndex and localRowID into a RowID.
func EncodeRowID(partitionIndex, localRowID int32) RowID {
	return RowID(int64(partitionIndex)<<32 | int64(uint32(localRowID)))
}

// ToPartitionIndex extracts the partition index packed into id.
func ToPartitionIndex(id RowID) int32 {
	return int32(int64(id) >> 32)
}

// ToLocalRowID extracts the local row id packed into id.
func ToLocalRowID(id RowID) int32 {
	return int32(uint32(int64(id)))
}
