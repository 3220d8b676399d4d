/*
Package sqldataset provides a dataset.Dataset source and sink
that uses an SQL database as backend.

The dataset uses a single samples table with one nullable
numeric column per feature plus one for the label. Discrete
feature values are stored as their codes. Rows with a NULL
label are skipped when reading, and NULL feature values are
replaced with the defaults in the metadata.
*/
package sqldataset
