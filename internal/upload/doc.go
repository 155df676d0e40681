// Package upload pushes a run's files through an ordered sink chain: a
// filedrop HTTP endpoint first, then blossom servers. A sink either takes
// every file or is abandoned for the next one.
package upload
