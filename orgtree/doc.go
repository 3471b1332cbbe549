// Package orgtree indexes the hierarchical organization tree (org type →
// enterprise → department) used for role scoping. Role applicability is an
// ancestor-path question, so the index materializes each node's ancestor
// chain once at build time instead of walking the tree per request.
package orgtree
