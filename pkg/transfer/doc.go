/*
The transfer package replicates directory trees between the local machine and
a droplet.

Both directions are built from the same few primitives on a remote session:
creating a directory, putting a file, getting a file, and running a command
whose output is read line by line. Neither direction deletes anything, and
file metadata such as permissions and timestamps isn't preserved.

Each sync first builds a Plan: an ordered list of directory creations and file
copies. Plans always create a directory before touching anything inside of
it, so they can be executed strictly in order. Every directory creation is
idempotent and every copy overwrites its destination, so re-running a sync
that failed halfway is safe.

Uploads walk the local tree. Downloads discover the remote tree by running
`find <root> -type f` and rebuilding the directory structure from the file
paths, so empty remote directories aren't downloaded.
*/
package transfer
