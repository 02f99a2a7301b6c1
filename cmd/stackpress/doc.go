// Command stackpress composites, compresses and publishes multi-page TIFF
// channel stacks in place, writing a thumbnail per asset and a manifest of
// processed identifiers.
//
// Usage:
//
//	stackpress run [dir]         process every TIFF in dir (default: current directory)
//	stackpress check [dir]       report tool and directory readiness
//	stackpress history           list recent runs from the history database
//	stackpress config init       write a sample configuration file
//	stackpress config validate   load and validate the configuration
//
// Exit status is 2 when ImageMagick cannot be located, 1 for any other fatal
// error, and 0 otherwise, even if individual assets failed.
package main
