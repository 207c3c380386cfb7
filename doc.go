/*
Package ase implements reading and writing of Aseprite sprite files
(.ase/.aseprite).

A file is a 128-byte header followed by frames. Every frame is a list of
self-sized chunks; the codec understands palette (new and old style), layer,
cel and tags chunks and skips everything else by its declared size. Cel pixels
may be stored raw, zlib-deflated, or (extension modes) PackBits RLE or LZ4.

Decode produces a Sprite; Encode writes one back so that decoding the output
yields an equal Sprite. The package also exports single cels as DDS textures
through bcn.
*/
package ase
