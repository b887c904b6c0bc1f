// Copyright 2024 The Silo Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package treeprinter renders trees of strings with unicode edges, for
// debugging output of hierarchical structures like plans and memos.
//
// Example usage:
//
//	tp := treeprinter.New()
//	root := tp.Child("root")
//	root.Child("child-1")
//	root.Childf("child-%d", 2)
//	fmt.Print(tp.String())
//
// Output:
//
//	root
//	 ├── child-1
//	 └── child-2
package treeprinter

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	edgeLink = "│"
	edgeMid  = "├── "
	edgeLast = "└── "
)

// Node is a handle associated with a specific depth in a tree. See below for
// sample usage.
type Node struct {
	tree *tree
	node *treeNode
}

type tree struct {
	root treeNode
}

type treeNode struct {
	text     string
	children []*treeNode
}

// New creates a tree printer and returns a sentinel node reference which
// should be used to add the root. Trees can have a single root.
func New() Node {
	t := &tree{}
	return Node{tree: t, node: &t.root}
}

// Child creates a new node as a child of the receiver, with the given text.
func (n Node) Child(text string) Node {
	if strings.ContainsRune(text, '\n') {
		panic("Child text cannot contain newlines")
	}
	child := &treeNode{text: text}
	n.node.children = append(n.node.children, child)
	return Node{tree: n.tree, node: child}
}

// Childf is a convenience wrapper around Child with fmt.Sprintf semantics.
func (n Node) Childf(format string, args ...interface{}) Node {
	return n.Child(fmt.Sprintf(format, args...))
}

// String returns the rendered tree. Must be called on the sentinel node
// returned by New.
func (n Node) String() string {
	if n.node != &n.tree.root {
		panic("String must be called on the root node")
	}
	var buf bytes.Buffer
	for _, root := range n.node.children {
		buf.WriteString(root.text)
		buf.WriteByte('\n')
		root.render(&buf, " ")
	}
	return buf.String()
}

// render writes the subtrees of n with the given prefix in front of each
// line.
func (n *treeNode) render(buf *bytes.Buffer, prefix string) {
	for i, c := range n.children {
		last := i == len(n.children)-1
		buf.WriteString(prefix)
		if last {
			buf.WriteString(edgeLast)
		} else {
			buf.WriteString(edgeMid)
		}
		buf.WriteString(c.text)
		buf.WriteByte('\n')
		if last {
			c.render(buf, prefix+"     ")
		} else {
			c.render(buf, prefix+edgeLink+"    ")
		}
	}
}
