// Package stage decides what goes into an installer package.
//
// Staging happens in two phases. Planning inspects the Homebrew prefix and
// the formula kegs (read-only) and produces a Plan of mkdir, copy and write
// operations rooted at a temporary staging root that mirrors the prefix.
// Executing the plan is left to the caller, which keeps dry runs cheap.
//
// Key responsibilities:
//   - Select the primary formula and, optionally, its dependency closure
//   - Stage whitelisted keg directories: directories shared in the prefix are
//     recreated empty, prefix symlinks are copied as symlinks
//   - Copy the whole keg so Homebrew recognises the formula after install
//   - Stage linked-keg and opt symlinks, interpreter site directories and
//     launchd service descriptors
package stage
