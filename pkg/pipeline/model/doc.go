// Package model holds the types shared by the pipeline host and its options: the description of a
// step and the hooks an option receives while the pipeline is wired and run.
package model
