package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/vovakirdan/tetris-evolve/internal/sim"
	"github.com/vovakirdan/tetris-evolve/internal/tetris"
)

// TraceSchema identifies the layout of trace files.
const TraceSchema = "tetris_trace_v1"

// TraceRow is one turn of a recorded game.
type TraceRow struct {
	Game     int32  `parquet:"game"`
	Turn     int32  `parquet:"turn"`
	Shape    string `parquet:"shape,dict"`
	X        int32  `parquet:"x"`
	Y        int32  `parquet:"y"`
	Rotation int32  `parquet:"rotation"`
	Score    int64  `parquet:"score"`
	Level    int32  `parquet:"level"`
	Lines    int32  `parquet:"lines"`
	// Board after the turn, Height rows of Width '.'/'x' cells, no separators.
	Board []byte `parquet:"board"`
}

// NewTraceRow records move m of game number game.
func NewTraceRow(game int, m sim.Move) TraceRow {
	board := make([]byte, 0, tetris.Width*tetris.Height)
	for y := range tetris.Height {
		for x := range tetris.Width {
			if m.After.Board[y][x] {
				board = append(board, 'x')
			} else {
				board = append(board, '.')
			}
		}
	}

	return TraceRow{
		Game:     int32(game),
		Turn:     int32(m.Turn),
		Shape:    m.Shape.String(),
		X:        int32(m.Piece.X),
		Y:        int32(m.Piece.Y),
		Rotation: int32(m.Piece.Rotation),
		Score:    int64(m.After.Score),
		Level:    int32(m.After.Level),
		Lines:    int32(m.After.Lines),
		Board:    board,
	}
}

// Piece returns the piece placed in this turn. Rows written by hand or by
// another program are checked against the piece geometry and the board walls.
func (r TraceRow) Piece() (tetris.Piece, error) {
	if len(r.Shape) != 1 {
		return tetris.Piece{}, fmt.Errorf("storage: bad shape %q in trace", r.Shape)
	}
	shape, err := tetris.ParseShape(rune(r.Shape[0]))
	if err != nil {
		return tetris.Piece{}, fmt.Errorf("storage: %w", err)
	}
	if r.Rotation < 0 || int(r.Rotation) >= shape.Rotations() {
		return tetris.Piece{}, fmt.Errorf("storage: bad rotation %d for shape %s in trace", r.Rotation, shape)
	}
	p := tetris.Piece{Shape: shape, Rotation: int(r.Rotation), X: int(r.X), Y: int(r.Y)}
	// An empty board only checks the walls and the floor.
	if !(tetris.Board{}).CanPlace(p) {
		return tetris.Piece{}, fmt.Errorf("storage: piece %s in trace is off the board", p)
	}
	return p, nil
}

// State rebuilds the game state after this turn.
func (r TraceRow) State() (tetris.State, error) {
	if len(r.Board) != tetris.Width*tetris.Height {
		return tetris.State{}, fmt.Errorf("storage: trace board has %d cells", len(r.Board))
	}
	s := tetris.State{Score: int(r.Score), Level: int(r.Level), Lines: int(r.Lines)}
	for i, c := range r.Board {
		s.Board[i/tetris.Width][i%tetris.Width] = c == 'x'
	}
	return s, nil
}

// WriteTrace writes rows to a new Parquet file in outDir and returns its
// path. The file appears atomically.
func WriteTrace(outDir, name string, rows []TraceRow) (string, error) {
	outDir, err := ExpandHome(outDir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("storage: create trace dir: %w", err)
	}

	fileName := fmt.Sprintf("trace_%s_%d.parquet", name, time.Now().UnixNano())
	finalPath := filepath.Join(outDir, fileName)
	tmpPath := finalPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", TraceSchema),
	); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("storage: write trace: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("storage: rename trace: %w", err)
	}

	return finalPath, nil
}

// ReadTrace loads every row of a trace file.
func ReadTrace(path string) ([]TraceRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("storage: open trace: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("storage: stat trace: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("storage: read trace: %w", err)
	}
	if schema, ok := pf.Lookup("schema"); !ok || schema != TraceSchema {
		return nil, fmt.Errorf("storage: %s is not a trace file (schema %q)", path, schema)
	}

	reader := parquet.NewGenericReader[TraceRow](pf)
	defer reader.Close()

	rows := make([]TraceRow, reader.NumRows())
	total := 0
	for total < len(rows) {
		n, err := reader.Read(rows[total:])
		total += n
		if errors.Is(err, io.EOF) || (n == 0 && err == nil) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("storage: read trace rows: %w", err)
		}
	}
	return rows[:total], nil
}

// Traces lists trace files in dir, newest first.
func Traces(dir string) ([]string, error) {
	dir, err := ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(filepath.Join(dir, "trace_*.parquet"))
	if err != nil {
		return nil, fmt.Errorf("storage: list traces: %w", err)
	}

	type entry struct {
		path string
		mod  time.Time
	}
	entries := make([]entry, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil {
			continue
		}
		entries = append(entries, entry{m, info.ModTime()})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		return b.mod.Compare(a.mod)
	})

	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.path
	}
	return paths, nil
}
