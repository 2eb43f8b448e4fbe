package main

import (
	"embed"
	"path"
	"sort"
	"strings"
)

//go:embed guests/*.lua
var guestFS embed.FS

//go:embed guests/prelude.lua
var guestPrelude string

// builtinGuests maps guest names to their Lua source.
func builtinGuests() map[string]string {
	guests := make(map[string]string)
	entries, err := guestFS.ReadDir("guests")
	if err != nil {
		return guests
	}
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".lua")
		if name == "prelude" {
			continue
		}
		data, err := guestFS.ReadFile(path.Join("guests", e.Name()))
		if err != nil {
			continue
		}
		guests[name] = string(data)
	}
	return guests
}

// BuiltinGuestNames lists the embedded guest programs.
func BuiltinGuestNames() []string {
	var names []string
	for name := range builtinGuests() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
