// Package binary installs the native Junie executable into a package root.
//
// # Pipeline
//
// Installer.Install runs, in order:
//
//  1. Resolve the release target for the host (platform.ResolveTarget).
//  2. Build the archive URL, or take JUNIE_DOWNLOAD_URL verbatim.
//  3. Take the install lock and stream the archive into the working directory.
//  4. Verify the archive when a SHA-256 digest or an OpenPGP keyring is configured.
//  5. Extract with the system unzip tool, or the built-in zip reader when
//     unzip is missing or JUNIE_FORCE_UNZIPPER=1.
//  6. Make every regular file executable and, on macOS, strip the
//     com.apple.quarantine attribute. Both steps are best-effort.
//  7. Check the binary landed where the platform layout expects it, delete the
//     archive, write the marker file and the install receipt.
//
// Nothing is rolled back on failure. The journal kept by the transaction
// package records which stage failed.
//
// # Verification
//
// Junie releases publish neither checksums nor signatures today, so
// verification is opt-in:
//   - SHA-256: JUNIE_ARCHIVE_SHA256, or a per-target digest in junie.lua
//   - OpenPGP: JUNIE_SIGNATURE_URL (detached, armored or binary) and
//     JUNIE_KEYRING (public keyring, armored or binary)
//
// A configured check that fails stops the install before extraction.
package binary
