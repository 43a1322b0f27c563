package document

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf16"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/charmap"
)

// Offsets into the File Information Block of a Word 97-2003 document.
const (
	fibIdent        = 0xA5EC
	fibFlagsOffset  = 0x000A
	fibFcClxOffset  = 0x01A2
	fibLcbClxOffset = 0x01A6

	flagEncrypted   = 0x0100
	flagWhichTblStm = 0x0200

	pieceCompressed = 0x40000000
)

var errNotWordDocument = errors.New("not a Word 97-2003 document")

func extractDoc(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	streams, err := readStreams(f, "WordDocument", "0Table", "1Table")
	if err != nil {
		return "", err
	}
	return wordText(streams)
}

// readStreams loads the named streams of an OLE2 compound file into memory.
func readStreams(r io.ReaderAt, names ...string) (map[string][]byte, error) {
	doc, err := mscfb.New(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errNotWordDocument, err)
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}

	streams := make(map[string][]byte)
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if !wanted[entry.Name] || len(entry.Path) > 0 {
			continue
		}
		data, err := io.ReadAll(entry)
		if err != nil {
			return nil, fmt.Errorf("could not read %s stream: %w", entry.Name, err)
		}
		streams[entry.Name] = data
	}
	return streams, nil
}

// wordText reassembles the main text from the piece table stored in the
// table stream's Clx structure.
func wordText(streams map[string][]byte) (string, error) {
	wd := streams["WordDocument"]
	if len(wd) < fibLcbClxOffset+4 || binary.LittleEndian.Uint16(wd) != fibIdent {
		return "", errNotWordDocument
	}

	flags := binary.LittleEndian.Uint16(wd[fibFlagsOffset:])
	if flags&flagEncrypted != 0 {
		return "", ErrEncrypted
	}
	tableName := "0Table"
	if flags&flagWhichTblStm != 0 {
		tableName = "1Table"
	}
	table, ok := streams[tableName]
	if !ok {
		return "", fmt.Errorf("%w: missing %s stream", errNotWordDocument, tableName)
	}

	fcClx := binary.LittleEndian.Uint32(wd[fibFcClxOffset:])
	lcbClx := binary.LittleEndian.Uint32(wd[fibLcbClxOffset:])
	if uint64(fcClx)+uint64(lcbClx) > uint64(len(table)) || lcbClx == 0 {
		return "", fmt.Errorf("%w: piece table out of range", errNotWordDocument)
	}
	pieces, err := parseClx(table[fcClx : fcClx+lcbClx])
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, p := range pieces {
		text, err := p.read(wd)
		if err != nil {
			return "", err
		}
		b.WriteString(text)
	}
	return cleanWordText(b.String()), nil
}

type piece struct {
	chars      uint32
	offset     uint32
	compressed bool
}

func (p piece) read(wd []byte) (string, error) {
	if p.compressed {
		end := uint64(p.offset) + uint64(p.chars)
		if end > uint64(len(wd)) {
			return "", fmt.Errorf("%w: piece out of range", errNotWordDocument)
		}
		out, err := charmap.Windows1252.NewDecoder().Bytes(wd[p.offset:end])
		return string(out), err
	}

	end := uint64(p.offset) + 2*uint64(p.chars)
	if end > uint64(len(wd)) {
		return "", fmt.Errorf("%w: piece out of range", errNotWordDocument)
	}
	units := make([]uint16, p.chars)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(wd[p.offset+uint32(2*i):])
	}
	return string(utf16.Decode(units)), nil
}

// parseClx skips the Prc entries and decodes the PlcPcd that follows.
func parseClx(clx []byte) ([]piece, error) {
	i := 0
	for i < len(clx) && clx[i] == 0x01 {
		if i+3 > len(clx) {
			return nil, fmt.Errorf("%w: truncated Prc", errNotWordDocument)
		}
		i += 3 + int(binary.LittleEndian.Uint16(clx[i+1:]))
	}
	if i+5 > len(clx) || clx[i] != 0x02 {
		return nil, fmt.Errorf("%w: missing Pcdt", errNotWordDocument)
	}
	lcb := int(binary.LittleEndian.Uint32(clx[i+1:]))
	plc := clx[i+5:]
	if lcb > len(plc) || lcb < 4 || (lcb-4)%12 != 0 {
		return nil, fmt.Errorf("%w: malformed PlcPcd", errNotWordDocument)
	}

	n := (lcb - 4) / 12
	cps := plc[:4*(n+1)]
	pcds := plc[4*(n+1) : lcb]
	pieces := make([]piece, 0, n)
	for k := 0; k < n; k++ {
		start := binary.LittleEndian.Uint32(cps[4*k:])
		end := binary.LittleEndian.Uint32(cps[4*(k+1):])
		if end < start {
			return nil, fmt.Errorf("%w: descending character positions", errNotWordDocument)
		}
		fc := binary.LittleEndian.Uint32(pcds[8*k+2:])
		p := piece{chars: end - start}
		if fc&pieceCompressed != 0 {
			p.compressed = true
			p.offset = (fc &^ pieceCompressed) / 2
		} else {
			p.offset = fc
		}
		pieces = append(pieces, p)
	}
	return pieces, nil
}

// cleanWordText drops field instructions and maps Word's control characters
// to plain text.
func cleanWordText(s string) string {
	var b strings.Builder
	depth := 0
	inInstruction := []bool{}
	for _, r := range s {
		switch r {
		case 0x13: // field begin
			depth++
			inInstruction = append(inInstruction, true)
			continue
		case 0x14: // field separator
			if depth > 0 {
				inInstruction[depth-1] = false
			}
			continue
		case 0x15: // field end
			if depth > 0 {
				depth--
				inInstruction = inInstruction[:depth]
			}
			continue
		}
		if depth > 0 && inInstruction[depth-1] {
			continue
		}
		switch r {
		case '\r', 0x0B, 0x0C:
			b.WriteByte('\n')
		case 0x07:
			b.WriteByte('\t')
		case 0x1E:
			b.WriteByte('-')
		case 0x01, 0x08, 0x1F:
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
