/*
Package checksumfile persists small blobs so that a reader either sees the
last complete write or an error, never a torn file. Data is written with its
checksum to a temp file, read back, and renamed over the target.
An example is:
    func main() {
    	fs := afero.NewOsFs()
    	filename := "/var/lib/raffle/round" // directory should exist beforehand
    	if err := checksumfile.Write(fs, filename, []byte("Hello World!")); err != nil {
    		panic(err)
    	}
    	read, err := checksumfile.Read(fs, filename)
    	if err != nil {
    		panic(err)
    	}
    	fmt.Println(string(read))
    }
*/
package checksumfile
