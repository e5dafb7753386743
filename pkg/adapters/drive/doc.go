// Package drive walks Google Drive through the v3 API.
//
// Provider implements ports.TreeProvider and ports.SharingSource. Folders are
// containers, every other file is a leaf item. Listings request one file per
// page so each call advances the walk by exactly one node, and request the
// permission fields alongside so classification needs no extra round trip.
package drive
