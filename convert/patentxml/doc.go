// Package patentxml converts USPTO patent grant documents into records.
//
// A grant document is one us-patent-grant element as published in the
// weekly ipgYYMMDD.xml files. Conversion reads the bibliographic section,
// abstract and description and produces rows for nine tables:
//
//   - patent: document number, kind, dates, application and title
//   - inventor: named inventors with location
//   - assignee: assignee organizations or people with role and location
//   - citation: cited patent documents
//   - sciref: cited non-patent literature
//   - class: national and IPC classifications
//   - lawyer: agents and attorneys of record
//   - usreldoc: related US documents (continuations, provisionals, ...)
//   - patdesc: abstract and description text split into chunks
//
// Both grant layouts in circulation are accepted: v4.0 to v4.2 documents
// list inventors as applicants under parties, while v4.3 and later use
// us-parties and us-references-cited.
package patentxml
