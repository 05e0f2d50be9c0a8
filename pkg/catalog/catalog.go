// Package catalog holds the closed set of step kinds a recipe may use.
//
// The catalog is descriptive only. Behavior for each kind lives in the
// steprunner handler table, which is checked against All() in tests.
package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStepKind is returned when a kind name is not part of the catalog.
var ErrUnknownStepKind = errors.New("unknown step kind")

// Kind identifies one action a step performs.
type Kind uint8

const (
	Invalid Kind = iota
	Navigate
	FindByID
	FindByName
	FindByClass
	FindByTag
	FindByLink
	FindByLinkPartial
	FindByCSS
	FindByXPath
	RandomSelect
	ScrollTo
	Pause
	Click
	Write
	WriteSlowly
	Submit
	GetText
	GetTexts
	GetValue
	GetValues
	GetAttribute
	GetAttributes
	GetPageTitle
	GetElementCount
	GetHTMLSource
	Log
	Data
	ExecuteJS
	GoBack
	GoForward
	UnsetPriorElement
	Screenshot
	SometimesScreenshot
	ElementScreenshot
	kindCount
)

// Info describes a kind for the interpreter, the validator and any recipe
// authoring tool.
type Info struct {
	Name        string
	Description string

	// RequiresSelection is set when the kind operates on the prior step's selection.
	RequiresSelection bool
	// ConsumesValue is set when the step value is used at all.
	ConsumesValue bool
	// ValueRequired is set when an empty value makes the step meaningless.
	ValueRequired bool
	// ProducesData is set when the kind appends Data entries to the run.
	ProducesData bool
}

var infos = [kindCount]Info{
	Navigate:            {Name: "navigate", Description: "Load the URL given as value", ConsumesValue: true, ValueRequired: true},
	FindByID:            {Name: "find_by_id", Description: "Select the element whose id is value", ConsumesValue: true, ValueRequired: true, ProducesData: true},
	FindByName:          {Name: "find_by_name", Description: "Select the element whose name attribute is value", ConsumesValue: true, ValueRequired: true, ProducesData: true},
	FindByClass:         {Name: "find_by_class", Description: "Select all elements carrying the class value", ConsumesValue: true, ValueRequired: true, ProducesData: true},
	FindByTag:           {Name: "find_by_tag", Description: "Select all elements with the tag name value", ConsumesValue: true, ValueRequired: true, ProducesData: true},
	FindByLink:          {Name: "find_by_link", Description: "Select all links whose text equals value", ConsumesValue: true, ValueRequired: true, ProducesData: true},
	FindByLinkPartial:   {Name: "find_by_link_partial", Description: "Select all links whose text contains value", ConsumesValue: true, ValueRequired: true, ProducesData: true},
	FindByCSS:           {Name: "find_by_css", Description: "Select all elements matching the CSS selector value", ConsumesValue: true, ValueRequired: true, ProducesData: true},
	FindByXPath:         {Name: "find_by_xpath", Description: "Select all elements matching the XPath expression value", ConsumesValue: true, ValueRequired: true, ProducesData: true},
	RandomSelect:        {Name: "random_select", Description: "Narrow the prior selection to one random element", RequiresSelection: true, ProducesData: true},
	ScrollTo:            {Name: "scroll_to", Description: "Scroll down by value pixels, or to the bottom when empty", ConsumesValue: true},
	Pause:               {Name: "pause", Description: "Wait for value seconds, jittered", ConsumesValue: true, ValueRequired: true},
	Click:               {Name: "click", Description: "Click the first element of the prior selection", RequiresSelection: true},
	Write:               {Name: "write", Description: "Type value into the first element of the prior selection", RequiresSelection: true, ConsumesValue: true},
	WriteSlowly:         {Name: "write_slowly", Description: "Type value one character at a time", RequiresSelection: true, ConsumesValue: true},
	Submit:              {Name: "submit", Description: "Submit the form of the first element of the prior selection", RequiresSelection: true},
	GetText:             {Name: "get_text", Description: "Store the text of the first selected element", RequiresSelection: true, ProducesData: true},
	GetTexts:            {Name: "get_texts", Description: "Store the text of every selected element", RequiresSelection: true, ProducesData: true},
	GetValue:            {Name: "get_value", Description: "Store the value of the first selected element", RequiresSelection: true, ProducesData: true},
	GetValues:           {Name: "get_values", Description: "Store the value of every selected element", RequiresSelection: true, ProducesData: true},
	GetAttribute:        {Name: "get_attribute", Description: "Store attribute value of the first selected element", RequiresSelection: true, ConsumesValue: true, ValueRequired: true, ProducesData: true},
	GetAttributes:       {Name: "get_attributes", Description: "Store attribute value of every selected element", RequiresSelection: true, ConsumesValue: true, ValueRequired: true, ProducesData: true},
	GetPageTitle:        {Name: "get_pagetitle", Description: "Store the document title", ProducesData: true},
	GetElementCount:     {Name: "get_element_count", Description: "Store the size of the prior selection", ProducesData: true},
	GetHTMLSource:       {Name: "get_htmlsource", Description: "Store the serialized document", ProducesData: true},
	Log:                 {Name: "log", Description: "Append value to the run log", ConsumesValue: true, ValueRequired: true},
	Data:                {Name: "data", Description: "Append value to the run data", ConsumesValue: true, ProducesData: true},
	ExecuteJS:           {Name: "execute_js", Description: "Run value as script; a returned value is stored", ConsumesValue: true, ValueRequired: true, ProducesData: true},
	GoBack:              {Name: "go_back", Description: "Navigate back one page"},
	GoForward:           {Name: "go_forward", Description: "Navigate forward one page"},
	UnsetPriorElement:   {Name: "unset_prior_element", Description: "Drop the carried selection"},
	Screenshot:          {Name: "screenshot", Description: "Capture the full page", ProducesData: true},
	SometimesScreenshot: {Name: "sometimes_screenshot", Description: "Capture the full page unless a recent run already did", ProducesData: true},
	ElementScreenshot:   {Name: "element_screenshot", Description: "Capture the first selected element", RequiresSelection: true, ProducesData: true},
}

var byName = func() map[string]Kind {
	m := make(map[string]Kind, kindCount)
	for k := Kind(1); k < kindCount; k++ {
		m[infos[k].Name] = k
	}
	return m
}()

// All returns every valid kind in declaration order.
func All() []Kind {
	kinds := make([]Kind, 0, kindCount-1)
	for k := Kind(1); k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// ParseKind resolves a kind name. Matching ignores surrounding space and case.
func ParseKind(name string) (Kind, error) {
	k, ok := byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Invalid, fmt.Errorf("%w: %q", ErrUnknownStepKind, name)
	}
	return k, nil
}

// Valid reports whether k is a catalog member.
func (k Kind) Valid() bool {
	return k > Invalid && k < kindCount
}

// Info returns the metadata of k. Invalid kinds yield a zero Info.
func (k Kind) Info() Info {
	if !k.Valid() {
		return Info{}
	}
	return infos[k]
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return infos[k].Name
}

// IsFind reports whether k is one of the find_by_* lookups.
func (k Kind) IsFind() bool {
	return k >= FindByID && k <= FindByXPath
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStepKind, uint8(k))
	}
	return []byte(infos[k].Name), nil
}

// UnmarshalText lets yaml and json decoding go through ParseKind.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
