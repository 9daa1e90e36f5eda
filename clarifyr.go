// Package clarifyr turns a piece of text or a web page into a short,
// beginner-friendly explanation produced by a generative language model.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, gemini/, http/).
package clarifyr
