package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/mrijcreo/scripttts/internal/core"
	"github.com/mrijcreo/scripttts/internal/fileutil"
	"github.com/mrijcreo/scripttts/internal/pptx"
)

var errNoScriptsInFile = errors.New("scripts file holds no scripts")

// loadScripts reads either a list of {"slideNumber", "script"} objects or a
// generated script set ({"scripts": [...], "fullScript": "..."}).
func loadScripts(path string) ([]pptx.ScriptEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scripts: %w", err)
	}

	data = bytes.TrimSpace(data)

	var entries []pptx.ScriptEntry

	if bytes.HasPrefix(data, []byte("[")) {
		err = json.Unmarshal(data, &entries)
		if err != nil {
			return nil, fmt.Errorf("failed to parse scripts: %w", err)
		}
	} else {
		var set core.ScriptSet

		err = json.Unmarshal(data, &set)
		if err != nil {
			return nil, fmt.Errorf("failed to parse scripts: %w", err)
		}

		entries = make([]pptx.ScriptEntry, len(set.Scripts))
		for i, script := range set.Scripts {
			entries[i] = pptx.ScriptEntry{SlideNumber: i + 1, Script: script}
		}
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s", errNoScriptsInFile, path)
	}

	return entries, nil
}

// pairScripts assigns generated scripts to the slides they were written for.
func pairScripts(slides []pptx.SlideContent, scripts []string) []pptx.ScriptEntry {
	entries := make([]pptx.ScriptEntry, 0, len(slides))

	for i, slide := range slides {
		if i >= len(scripts) {
			break
		}

		entries = append(entries, pptx.ScriptEntry{SlideNumber: slide.SlideNumber, Script: scripts[i]})
	}

	return entries
}

// attachAudio loads the recording for every entry that has one in dir.
func attachAudio(entries []pptx.ScriptEntry, dir string) error {
	files, err := fileutil.FindSlideAudio(dir)
	if err != nil {
		return err
	}

	for i := range entries {
		number := entries[i].SlideNumber
		if number <= 0 {
			number = i + 1
		}

		path, ok := files[number]
		if !ok {
			continue
		}

		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("failed to read audio %s: %w", path, readErr)
		}

		entries[i].Audio = data
	}

	return nil
}

func countAudio(entries []pptx.ScriptEntry) int {
	count := 0

	for _, entry := range entries {
		if entry.HasAudio() {
			count++
		}
	}

	return count
}
