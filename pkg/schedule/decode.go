package schedule

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/anggasct/mavmon/pkg/core"
	"github.com/anggasct/mavmon/pkg/utils"
)

type lineEvent struct {
	event core.ScheduleEvent
	line  int
}

// decodeText reads "<time> <train> <direction>" lines. Fields may be
// separated by whitespace or commas and '#' starts a comment.
func decodeText(r io.Reader) ([]lineEvent, error) {
	var events []lineEvent

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\r'
		})
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			return nil, utils.NewScheduleError("", lineNo,
				fmt.Errorf("want 3 fields, got %d", len(fields)))
		}

		ev, err := parseFields(fields[0], fields[1], fields[2])
		if err != nil {
			return nil, utils.NewScheduleError("", lineNo, err)
		}
		events = append(events, lineEvent{event: ev, line: lineNo})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func parseFields(timeField, idField, dirField string) (core.ScheduleEvent, error) {
	t, err := strconv.ParseInt(timeField, 10, 64)
	if err != nil {
		return core.ScheduleEvent{}, fmt.Errorf("arrival time %q: %w", timeField, err)
	}
	id, err := strconv.ParseUint(idField, 10, 32)
	if err != nil {
		return core.ScheduleEvent{}, fmt.Errorf("train id %q: %w", idField, err)
	}
	dir, err := core.ParseDirection(dirField)
	if err != nil {
		return core.ScheduleEvent{}, err
	}
	return core.ScheduleEvent{ArrivalTime: t, TrainID: uint32(id), Direction: dir}, nil
}

type yamlEvent struct {
	Time      int64          `yaml:"time"`
	Train     uint32         `yaml:"train"`
	Direction core.Direction `yaml:"direction"`
}

type yamlSchedule struct {
	Events []yamlEvent `yaml:"events"`
}

// decodeYAML reads an events list, rejecting unknown fields
func decodeYAML(r io.Reader) ([]lineEvent, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var sched yamlSchedule
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&sched); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	// line numbers come from the node tree so errors point at the entry
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	lines := eventLines(&doc)

	events := make([]lineEvent, 0, len(sched.Events))
	for i, e := range sched.Events {
		le := lineEvent{event: core.ScheduleEvent{
			ArrivalTime: e.Time,
			TrainID:     e.Train,
			Direction:   e.Direction,
		}}
		if i < len(lines) {
			le.line = lines[i]
		}
		events = append(events, le)
	}
	return events, nil
}

func eventLines(doc *yaml.Node) []int {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "events" {
			continue
		}
		seq := root.Content[i+1]
		lines := make([]int, 0, len(seq.Content))
		for _, n := range seq.Content {
			lines = append(lines, n.Line)
		}
		return lines
	}
	return nil
}
