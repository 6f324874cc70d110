// Package rules parses the YAML rule files that sit next to a BMF flow:
// merging rules, filter criteria and mapping rules.
//
// A Parser is bound to one file. Construction fails only for access problems
// (ErrNotFound, ErrWrongExtension). Parse never fails: syntax errors and
// malformed sections are recorded on the returned Analysis, and an item that
// cannot be read is skipped with a warning so the rest of the file still
// counts.
//
// BMF rule files use custom tags such as `!env PRODUCTS_TABLE`. How such tags
// are treated is decided by an UnknownTagFunc. The default, TransparentTags,
// drops the tag and keeps the underlying value.
package rules
