/*
Package mock contains mock implementations of cljhost interfaces, intended
for use in unit-tests.

Mocks are located in `./pkg/...`.  Note that the directory structure mirrors
that of the root-level `pkg/` path.  They are generated by mockgen from the
go:generate directives in the mocked packages.

The package name of all mock implementations follows the `mock_*` pattern,
where `*` is the original package name.  For example, mocks for
`pkg/classpath` are found in `./pkg/classpath/classpath.go`, in package
`mock_classpath`.
*/
package mock
