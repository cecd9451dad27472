package badger

import (
	"encoding/binary"

	"github.com/poiesic/quarry/core"
)

// Key prefixes for different data types. IDs inside keys are big-endian so
// that lexicographic key order is numeric order.
const (
	buildPrefix            = "bld:"
	buildTypeIndexPrefix   = "bldtyp:"
	buildNumberIndexPrefix = "bldnum:"
	buildUniqueKeyPrefix   = "bldkey:"
	buildIDSeq             = "bldseq"
	testPrefix             = "tst:"
	testBuildIndexPrefix   = "tstbld:"
	testIDSeq              = "tstseq"
	checkpointPrefix       = "chkpt:"
)

// separator ends variable-length key parts. It cannot occur in build type ids
// or build numbers read from text input.
const separator = 0x00

func appendID(buf []byte, id core.ID) []byte {
	return binary.BigEndian.AppendUint64(buf, uint64(id))
}

// makeBuildKey generates a key for a build by ID.
// Format: prefix + id
func makeBuildKey(id core.ID) []byte {
	return appendID([]byte(buildPrefix), id)
}

// makeBuildTypeKey generates a composite key for the build type index.
// Format: prefix + buildType + 0x00 + id
func makeBuildTypeKey(buildTypeID string, id core.ID) []byte {
	return appendID(makePartialBuildTypeKey(buildTypeID), id)
}

// makePartialBuildTypeKey generates the prefix of every index key of one build type.
func makePartialBuildTypeKey(buildTypeID string) []byte {
	buf := make([]byte, 0, len(buildTypeIndexPrefix)+len(buildTypeID)+1+8)
	buf = append(buf, buildTypeIndexPrefix...)
	buf = append(buf, buildTypeID...)
	return append(buf, separator)
}

// makeBuildNumberKey generates a composite key for the build number index.
// Format: prefix + number + 0x00 + id
func makeBuildNumberKey(number string, id core.ID) []byte {
	return appendID(makePartialBuildNumberKey(number), id)
}

// makePartialBuildNumberKey generates the prefix of every index key of one build number.
func makePartialBuildNumberKey(number string) []byte {
	buf := make([]byte, 0, len(buildNumberIndexPrefix)+len(number)+1+8)
	buf = append(buf, buildNumberIndexPrefix...)
	buf = append(buf, number...)
	return append(buf, separator)
}

// makeBuildUniqueKey generates the key that holds the id of the one build
// with a given build type and number.
// Format: prefix + buildType + 0x00 + number
func makeBuildUniqueKey(buildTypeID, number string) []byte {
	buf := make([]byte, 0, len(buildUniqueKeyPrefix)+len(buildTypeID)+1+len(number))
	buf = append(buf, buildUniqueKeyPrefix...)
	buf = append(buf, buildTypeID...)
	buf = append(buf, separator)
	return append(buf, number...)
}

// makeTestKey generates a key for a test occurrence by ID.
func makeTestKey(id core.ID) []byte {
	return appendID([]byte(testPrefix), id)
}

// makeTestBuildKey generates a composite key for the build index of tests.
// Format: prefix + buildID + testID
func makeTestBuildKey(buildID, testID core.ID) []byte {
	return appendID(makePartialTestBuildKey(buildID), testID)
}

// makePartialTestBuildKey generates the prefix of every test index key of one build.
func makePartialTestBuildKey(buildID core.ID) []byte {
	return appendID([]byte(testBuildIndexPrefix), buildID)
}

// makeCheckpointKey generates a key for import checkpoints.
func makeCheckpointKey(source string) []byte {
	return append([]byte(checkpointPrefix), source...)
}

// prefixEnd returns the smallest key greater than every key with the prefix.
// Reverse iteration seeks to it to start at the last key of the prefix.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xFF {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
